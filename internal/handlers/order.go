package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"marketapi/internal/models"
	"marketapi/internal/payment"
)

type createOrderRequest struct {
	Currency    string `json:"currency" binding:"required"`
	CardNumber  string `json:"cardNumber" binding:"required"`
	ExpMonth    int64  `json:"expMonth" binding:"required"`
	ExpYear     int64  `json:"expYear" binding:"required"`
	CVC         string `json:"cvc" binding:"required"`
	Street      string `json:"street" binding:"required"`
	City        string `json:"city" binding:"required"`
	PostalCode  string `json:"postalCode" binding:"required"`
	Country     string `json:"country" binding:"required"`
	State       string `json:"state" binding:"required"`
	CountryCode string `json:"countryCode" binding:"required"`
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

type singleOrderUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

func validOrderStatus(status string) bool {
	switch status {
	case models.StatusPending, models.StatusFailed, models.StatusPaid,
		models.StatusDelivered, models.StatusCanceled:
		return true
	}
	return false
}

// CreateOrder turns the requester's cart into an order: it charges the
// card through the orchestrator, snapshots the cart lines into order and
// single-order documents, decrements stock and clears the cart.
func CreateOrder(db *mongo.Database, orchestrator *payment.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /orders"
		defer handlePanic(c, route)

		userID, _, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, route, errBadRequest("invalid request body"))
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			writeError(c, route, errUnauthorized("unauthorized"))
			return
		}

		cursor, err := db.Collection("cartitems").Find(ctx, bson.M{"user": userID})
		if err != nil {
			writeError(c, route, err)
			return
		}
		var cart []models.CartItem
		if err := cursor.All(ctx, &cart); err != nil {
			writeError(c, route, err)
			return
		}
		if len(cart) == 0 {
			writeError(c, route, errBadRequest("cart is empty"))
			return
		}

		items := make([]models.OrderItem, 0, len(cart))
		sellers := make(map[primitive.ObjectID]primitive.ObjectID, len(cart))
		totalPrice := 0.0
		totalTax := 0.0
		for _, line := range cart {
			var product models.Product
			if err := db.Collection("products").FindOne(ctx, bson.M{"_id": line.Product}).Decode(&product); err != nil {
				if err == mongo.ErrNoDocuments {
					writeError(c, route, errBadRequest("a cart product no longer exists"))
					return
				}
				writeError(c, route, err)
				return
			}
			if product.Stock < line.Amount {
				writeError(c, route, errBadRequest("not enough stock for product "+product.Name))
				return
			}

			lineTax := product.Price * product.Tax * float64(line.Amount)
			items = append(items, models.OrderItem{
				Product: product.ID,
				Name:    product.Name,
				Amount:  line.Amount,
				Price:   product.Price,
				Tax:     product.Tax,
			})
			sellers[product.ID] = product.Seller
			totalPrice += product.Price*float64(line.Amount) + lineTax
			totalTax += lineTax
		}

		result, err := orchestrator.Charge(ctx, payment.ChargeParams{
			TotalPrice:    totalPrice,
			Currency:      req.Currency,
			CardNumber:    req.CardNumber,
			ExpMonth:      req.ExpMonth,
			ExpYear:       req.ExpYear,
			CVC:           req.CVC,
			Street:        req.Street,
			City:          req.City,
			PostalCode:    req.PostalCode,
			Country:       req.Country,
			State:         req.State,
			CountryCode:   req.CountryCode,
			PhoneNumber:   req.PhoneNumber,
			CustomerName:  user.Name + " " + user.Surname,
			CustomerEmail: user.Email,
		})
		if err != nil {
			writeError(c, route, err)
			return
		}

		status := models.StatusPending
		if result.Status == "succeeded" {
			status = models.StatusPaid
		}

		now := time.Now()
		order := models.Order{
			User:            userID,
			Items:           items,
			TotalPrice:      totalPrice,
			Tax:             totalTax,
			Currency:        result.Currency,
			Status:          status,
			PaymentIntentID: result.PaymentIntentID,
			ClientSecret:    result.ClientSecret,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		res, err := db.Collection("orders").InsertOne(ctx, order)
		if err != nil {
			writeError(c, route, err)
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			order.ID = id
		}

		singleOrders := make([]interface{}, 0, len(items))
		for _, item := range items {
			singleOrders = append(singleOrders, models.SingleOrder{
				Order:     order.ID,
				User:      userID,
				Product:   item.Product,
				Seller:    sellers[item.Product],
				Amount:    item.Amount,
				Price:     item.Price,
				Tax:       item.Tax,
				Status:    status,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		if _, err := db.Collection("singleorders").InsertMany(ctx, singleOrders); err != nil {
			writeError(c, route, err)
			return
		}

		for _, item := range items {
			if _, err := db.Collection("products").UpdateByID(ctx, item.Product, bson.M{
				"$inc": bson.M{"stock": -item.Amount},
			}); err != nil {
				log.Println("[ORDER] [ERROR] stock decrement failed:", err)
			}
		}

		if _, err := db.Collection("cartitems").DeleteMany(ctx, bson.M{"user": userID}); err != nil {
			log.Println("[ORDER] [ERROR] cart cleanup failed:", err)
		}

		// The user's provider customer id is cached for later charges.
		if user.StripeCustomerID != result.CustomerID {
			_, _ = db.Collection("users").UpdateByID(ctx, userID, bson.M{
				"$set": bson.M{"stripeCustomerId": result.CustomerID, "updatedAt": now},
			})
		}

		log.Println("[ORDER] [INFO] order created:", order.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{"msg": "order created", "order": order})
	}
}

// GetAllOrders lists orders: all of them for admins, only the requester's
// own otherwise.
func GetAllOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders"
		defer handlePanic(c, route)

		userID, role, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		query := bson.M{}
		if role != models.RoleAdmin {
			query["user"] = userID
		}

		window := limitAndSkip(parsePage(c.Query("page")), orderPageSize)
		findOptions := options.Find().
			SetSkip(window.Skip).
			SetLimit(window.Limit).
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		ctx, cancel := dbContext(c)
		defer cancel()

		cursor, err := db.Collection("orders").Find(ctx, query, findOptions)
		if err != nil {
			writeError(c, route, err)
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			writeError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"result": orders, "length": len(orders)})
	}
}

// GetOrder fetches one order; non-admins only see their own.
func GetOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/:id"

		userID, role, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		var order models.Order
		if err := findByID(ctx, db.Collection("orders"), c.Param("id"), &order); err != nil {
			writeError(c, route, err)
			return
		}

		if err := requesterMayMutate(role, userID, order.User); err != nil {
			writeError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"order": order})
	}
}

// GetAllSingleOrders lists order lines scoped by role: admins see all,
// sellers the lines of their products, couriers everything in flight,
// users their own purchases.
func GetAllSingleOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/single-order"
		defer handlePanic(c, route)

		userID, role, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		query := bson.M{}
		switch role {
		case models.RoleAdmin, models.RoleCourier:
		case models.RoleSeller:
			query["seller"] = userID
		default:
			query["user"] = userID
		}

		window := limitAndSkip(parsePage(c.Query("page")), orderPageSize)
		findOptions := options.Find().
			SetSkip(window.Skip).
			SetLimit(window.Limit).
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		ctx, cancel := dbContext(c)
		defer cancel()

		cursor, err := db.Collection("singleorders").Find(ctx, query, findOptions)
		if err != nil {
			writeError(c, route, err)
			return
		}
		defer cursor.Close(ctx)

		singleOrders := make([]models.SingleOrder, 0)
		if err := cursor.All(ctx, &singleOrders); err != nil {
			writeError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"result": singleOrders, "length": len(singleOrders)})
	}
}

// mayViewOrderLine restricts a line to the buyer, the line's seller and
// the fulfillment roles.
func mayViewOrderLine(role string, requesterID primitive.ObjectID, line models.SingleOrder) error {
	switch role {
	case models.RoleAdmin, models.RoleCourier:
		return nil
	}
	if requesterID == line.User || requesterID == line.Seller {
		return nil
	}
	return errForbidden("order line belongs to another account")
}

// GetSingleOrder fetches one order line, visible to its buyer, its seller,
// couriers and admins.
func GetSingleOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /orders/single-order/:id"

		requesterID, role, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		var singleOrder models.SingleOrder
		if err := findByID(ctx, db.Collection("singleorders"), c.Param("id"), &singleOrder); err != nil {
			writeError(c, route, err)
			return
		}

		if err := mayViewOrderLine(role, requesterID, singleOrder); err != nil {
			writeError(c, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"singleOrder": singleOrder})
	}
}

// UpdateSingleOrder changes an order line's status. Sellers may only touch
// lines of their own products. Canceling a paid line refunds it.
func UpdateSingleOrder(db *mongo.Database, orchestrator *payment.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /orders/single-order/:id"
		defer handlePanic(c, route)

		requesterID, role, err := requesterFromContext(c)
		if err != nil {
			writeError(c, route, err)
			return
		}

		var req singleOrderUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil || !validOrderStatus(req.Status) {
			writeError(c, route, errBadRequest("status must be one of pending, failed, paid, delivered, canceled"))
			return
		}

		ctx, cancel := dbContext(c)
		defer cancel()

		var singleOrder models.SingleOrder
		if err := findByID(ctx, db.Collection("singleorders"), c.Param("id"), &singleOrder); err != nil {
			writeError(c, route, err)
			return
		}

		if err := requesterMayMutate(role, requesterID, singleOrder.Seller); err != nil {
			writeError(c, route, err)
			return
		}

		if req.Status == models.StatusCanceled && singleOrder.Status == models.StatusPaid {
			var order models.Order
			if err := db.Collection("orders").FindOne(ctx, bson.M{"_id": singleOrder.Order}).Decode(&order); err != nil {
				writeError(c, route, err)
				return
			}

			lineTotal := singleOrder.Price * float64(singleOrder.Amount) * (1 + singleOrder.Tax)
			if _, err := orchestrator.Refund(ctx, order.PaymentIntentID, payment.MinorUnits(lineTotal)); err != nil {
				writeError(c, route, err)
				return
			}
			log.Println("[ORDER] [INFO] line refunded:", singleOrder.ID.Hex())
		}

		now := time.Now()
		singleOrder.Status = req.Status
		singleOrder.UpdatedAt = now
		if _, err := db.Collection("singleorders").UpdateByID(ctx, singleOrder.ID, bson.M{
			"$set": bson.M{"status": req.Status, "updatedAt": now},
		}); err != nil {
			writeError(c, route, err)
			return
		}

		if err := syncOrderStatus(ctx, db, singleOrder.Order); err != nil {
			log.Println("[ORDER] [ERROR] order status sync failed:", err)
		}

		c.JSON(http.StatusOK, gin.H{"msg": "single order updated", "result": singleOrder})
	}
}

// syncOrderStatus promotes the parent order to delivered or canceled when
// every line agrees.
func syncOrderStatus(ctx context.Context, db *mongo.Database, orderID primitive.ObjectID) error {
	cursor, err := db.Collection("singleorders").Find(ctx, bson.M{"order": orderID})
	if err != nil {
		return err
	}
	var lines []models.SingleOrder
	if err := cursor.All(ctx, &lines); err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	first := lines[0].Status
	for _, line := range lines[1:] {
		if line.Status != first {
			return nil
		}
	}
	if first != models.StatusDelivered && first != models.StatusCanceled {
		return nil
	}

	_, err = db.Collection("orders").UpdateByID(ctx, orderID, bson.M{
		"$set": bson.M{"status": first, "updatedAt": time.Now()},
	})
	return err
}
